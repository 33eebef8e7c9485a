package resolver

import (
	"context"

	"github.com/garyellow/baera-chatbot-go/internal/catalog"
	"github.com/garyellow/baera-chatbot-go/internal/knowledge"
)

func newTable(name string, columns []string, rows ...[]string) *knowledge.Table {
	t := &knowledge.Table{Name: name, Columns: columns, Source: knowledge.SourceCSV}
	for _, values := range rows {
		row := make(knowledge.Row, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// fixtureSnapshot builds a snapshot with all three catalogs populated.
func fixtureSnapshot() *catalog.Snapshot {
	docs := newTable(knowledge.TableDocuments, []string{"id", "nombre_documento", "imagen_url"},
		[]string{"1", "PRESENTACIÓN: Solicitud de beca", "https://img/solicitud.png"},
		[]string{"2", "PRESENTACIÓN: Fotocopia del DNI", "https://img/dni.png"},
		[]string{"3", "ACADÉMICO: Constancia de notas", "https://img/notas.png"},
		[]string{"4", "ACADÉMICO: Récord curricular", "https://img/record.png"},
		[]string{"5", "SOCIO-ECONÓMICO: Boleta de pago", "https://img/boleta.png"},
		[]string{"6", "Carta de motivación", "https://img/carta.png"},
	)
	notices := newTable(knowledge.TableNotices, []string{"id", "fecha", "contenido", "imagen_url"},
		[]string{"12", "2025-03-05", "Pago de la subvención de marzo", "https://img/pago-marzo.png"},
		[]string{"13", "2025-03-10", "Reunión informativa", ""},
		[]string{"14", "2025-03-15", "Cronograma de entrevistas", "https://img/cronograma.png"},
	)
	locations := newTable(knowledge.TableLocations, []string{"id", "nombre", "direccion", "imagen_url"},
		[]string{"1", "Oficinas de Trabajo Social", "Pabellón administrativo primer piso", "https://img/trabajo-social.png"},
		[]string{"2", "Revisión Nutricional", "Centro médico universitario", "https://img/nutricion.png"},
		[]string{"3", "Comedor Universitario", "Avenida principal", "https://img/comedor.png"},
		[]string{"4", "Sala Azul", "Pabellón central segundo piso", "https://img/sala-azul.png"},
	)

	tables := make([]*knowledge.Table, len(knowledge.Tables))
	for i, def := range knowledge.Tables {
		switch def.Name {
		case knowledge.TableDocuments:
			tables[i] = docs
		case knowledge.TableNotices:
			tables[i] = notices
		case knowledge.TableLocations:
			tables[i] = locations
		}
	}
	return catalog.Build(context.Background(), &knowledge.Result{Specs: knowledge.Tables, Tables: tables})
}
