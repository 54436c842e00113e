// Package output renders CLI results as a table, JSON or YAML.
//
// Tables are derived from struct fields: the json tag names the column,
// `table:"-"` hides a field and `table:"wide"` shows it only in wide mode.
package output
