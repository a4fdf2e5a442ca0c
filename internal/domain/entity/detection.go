package entity

// Метки, которые понимает движок решений. Остальные игнорируются.
const (
	LabelRecycled   = "recycled"
	LabelOnPosition = "on-position"
)

// Detection одна распознанная сущность от классификатора
type Detection struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"` // в диапазоне [0, 1]
	Region     *Rect   `json:"region,omitempty"`
}
