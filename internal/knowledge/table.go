// Package knowledge fetches the scholarship tables from the configured
// sources and reports which ones yielded data.
package knowledge

// TableSpec names a knowledge table and the heading it gets in the
// knowledge text.
type TableSpec struct {
	Name        string
	Description string
}

// Table names with special catalog handling.
const (
	TableDocuments = "documentos_requeridos"
	TableNotices   = "comunicados"
	TableLocations = "ubicaciones"
)

// Tables lists every table the knowledge text is built from, in output order.
var Tables = []TableSpec{
	{Name: "becas", Description: "Información general de la beca"},
	{Name: "requisitos", Description: "Requisitos para aplicar a la beca"},
	{Name: TableDocuments, Description: "Documentos necesarios para la postulación"},
	{Name: "proceso_postulacion", Description: "Pasos del proceso de postulación"},
	{Name: "servicios", Description: "Servicios incluidos en la beca"},
	{Name: "contactos", Description: "Información de contacto"},
	{Name: "compromiso_beca", Description: "Compromiso del becario"},
	{Name: TableNotices, Description: "Comunicados y avisos oficiales"},
	{Name: TableLocations, Description: "Ubicaciones y referencias visuales"},
}

// Row maps column names to cell values. Missing or null cells are "".
type Row map[string]string

// Get returns the value of col, or "" when absent.
func (r Row) Get(col string) string {
	return r[col]
}

// Has reports whether col is present in the row.
func (r Row) Has(col string) bool {
	_, ok := r[col]
	return ok
}

// Table is one fetched table. Columns preserves the source column order.
type Table struct {
	Name    string
	Columns []string
	Rows    []Row
	// Source is the name of the source that served the table.
	Source string
}

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool {
	return t == nil || len(t.Rows) == 0
}
