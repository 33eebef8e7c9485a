package intent

import (
	"github.com/garyellow/baera-chatbot-go/internal/sliceutil"
	"github.com/garyellow/baera-chatbot-go/internal/stringutil"
)

// Keyword lists are written as users type them and normalized once at init.
var (
	locationKeywords = normalized(
		"donde", "dónde", "ubicacion", "ubicación", "queda", "llegar",
		"direccion", "dirección", "lugar",
		// contact, obtain and lost-item words also point at a place
		"contacto", "contactar", "oficinas", "donde preguntar", "mas informacion",
		"más información", "adquirir", "obtener", "conseguir", "solicitar",
		"retirar", "recoger", "perdi", "perdí", "perdido",
	)

	explicitLocationWords = normalized("donde", "dónde", "adquirir", "obtener", "conseguir", "solicitar")

	lostItemWords = normalized("perdi", "perdí", "perdido")

	noticeKeywords = normalized(
		"comunicado", "comunicados", "ultimo comunicado", "último comunicado",
		"ultimos comunicados", "últimos comunicados",
		"pago", "pagos", "pagaron", "pagado", "abonado", "abonaron",
		"fecha de pago", "fecha de pagos", "cuando pagan", "cuando pagaron", "ya pagaron",
		"cronograma", "aviso", "avisos", "anuncio", "anuncios", "publicación", "publicacion",
		"boleta de pago", "recoger boleta", "reciente", "recientes",
	)

	documentPhrases = normalized(
		"documento requerido", "documentos requeridos", "documentos para postular",
		"documentos necesarios", "documentos de postulación", "qué documentos",
		"qué debo presentar", "documentos que debo", "documentos que necesito",
		"carpeta de postulación",
	)

	documentWords = normalized("documento", "documentos")

	requirementWords = normalized("requerido", "necesario", "presentar", "postular", "postulación")

	// Matched as whole words: "si" must not fire inside "necesito".
	confirmationWords = normalized(
		"si", "sí", "por favor", "porfavor", "claro", "por supuesto", "adelante",
		"ok", "okay", "vale", "perfecto", "bueno", "bien", "dale", "vamos",
		"empieza", "comienza",
	)

	// An earlier answer containing any of these was about documents.
	documentAnswerMarkers = normalized("presentación", "académico", "socio-económico", "documento", "¿te gustaría", "imágenes")

	// Category names that gate the document catalog even when the
	// snapshot has not cataloged them.
	knownCategories = normalized("presentación", "académico", "socio-económico", "socioeconómico", "socio económico")
)

func normalized(words ...string) []string {
	var set sliceutil.OrderedSet[string]
	for _, w := range words {
		set.Add(stringutil.Normalize(w))
	}
	return set.Values()
}
