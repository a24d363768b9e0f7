package format

import "strings"

// Tone names the colour family a badge renders with.
type Tone string

const (
	ToneGreen Tone = "green"
	ToneAmber Tone = "amber"
	ToneRed   Tone = "red"
	ToneBlue  Tone = "blue"
	ToneGray  Tone = "gray"
)

// Badge is a label plus its tone, ready for the client to render.
type Badge struct {
	Label string `json:"label"`
	Tone  Tone   `json:"tone"`
	Class string `json:"class"`
}

var toneClasses = map[Tone]string{
	ToneGreen: "bg-green-100 text-green-800",
	ToneAmber: "bg-amber-100 text-amber-800",
	ToneRed:   "bg-red-100 text-red-800",
	ToneBlue:  "bg-blue-100 text-blue-800",
	ToneGray:  "bg-gray-100 text-gray-800",
}

// NewBadge builds a Badge with the CSS class for tone.
func NewBadge(label string, tone Tone) Badge {
	class, ok := toneClasses[tone]
	if !ok {
		class = toneClasses[ToneGray]
	}
	return Badge{Label: label, Tone: tone, Class: class}
}

var categoryLabels = map[string]string{
	"makanan":     "Makanan",
	"minuman":     "Minuman",
	"snack":       "Snack",
	"bahan_baku":  "Bahan Baku",
	"kemasan":     "Kemasan",
	"bumbu":       "Bumbu",
	"peralatan":   "Peralatan",
	"operasional": "Operasional",
	"lainnya":     "Lainnya",
}

// CategoryLabel returns the display label of a category slug.
func CategoryLabel(slug string) string {
	if label, ok := categoryLabels[strings.ToLower(strings.TrimSpace(slug))]; ok {
		return label
	}
	if slug == "" {
		return categoryLabels["lainnya"]
	}
	return strings.ToUpper(slug[:1]) + strings.ReplaceAll(slug[1:], "_", " ")
}

// Categories lists the known category slugs.
func Categories() []string {
	return []string{"makanan", "minuman", "snack", "bahan_baku", "kemasan", "bumbu", "peralatan", "operasional", "lainnya"}
}
