package fileserver

import (
	"html/template"
	"net/http"
	"net/url"
	"os"
	"sort"

	"github.com/yndnr/statichost-go/internal/core/domain"
)

var listingTemplate = template.Must(template.New("listing").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Index of {{.Path}}</title></head>
<body>
<h1>Index of {{.Path}}</h1>
<ul>
{{- if .Parent}}
<li><a href="../">../</a></li>
{{- end}}
{{- range .Entries}}
<li><a href="{{.Href}}">{{.Name}}</a></li>
{{- end}}
</ul>
</body>
</html>
`))

// Entry is one line of a directory listing.
type Entry struct {
	Name string
	Href string
}

type listingPage struct {
	Path    string
	Parent  bool
	Entries []Entry
}

// ListEntries reads dir and returns its entries sorted by name, with
// directories suffixed "/".
func ListEntries(dir string) ([]Entry, error) {
	des, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(des))
	for _, de := range des {
		name := de.Name()
		if de.IsDir() {
			name += "/"
		}
		u := url.URL{Path: name}
		entries = append(entries, Entry{Name: name, Href: u.String()})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}

func (s *Server) serveListing(w http.ResponseWriter, r *http.Request, dir, rel string) error {
	entries, err := ListEntries(dir)
	if err != nil {
		return domain.ErrFileForbidden.WithDetails(rel).WithCause(err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return nil
	}

	page := listingPage{
		Path:    r.URL.Path,
		Parent:  rel != "/",
		Entries: entries,
	}
	if err := listingTemplate.Execute(w, page); err != nil {
		s.logger.Warn("directory listing write failed", "path", rel, "error", err)
	}
	return nil
}
