package entity

// Rect область на кадре в координатах, относительных кадру
type Rect struct {
	X      float64 `json:"x"`      // координата X левого верхнего угла
	Y      float64 `json:"y"`      // координата Y левого верхнего угла
	Width  float64 `json:"width"`  // ширина области
	Height float64 `json:"height"` // высота области
}

// Center возвращает координаты центра области
func (r Rect) Center() (x, y float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Valid проверяет, что все поля неотрицательны
func (r Rect) Valid() bool {
	return r.X >= 0 && r.Y >= 0 && r.Width >= 0 && r.Height >= 0
}
