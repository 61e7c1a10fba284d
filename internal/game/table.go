package game

// Rect is an axis-aligned rectangle.
type Rect struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// Inset shrinks the rectangle by d on every side.
func (r Rect) Inset(d float64) Rect {
	return Rect{MinX: r.MinX + d, MinY: r.MinY + d, MaxX: r.MaxX - d, MaxY: r.MaxY - d}
}

func (r Rect) Contains(p Vec2) bool {
	return p.X >= r.MinX && p.X <= r.MaxX && p.Y >= r.MinY && p.Y <= r.MaxY
}

// Pocket is one of the six pockets on the table.
type Pocket struct {
	ID       int     `json:"id"`
	Position Vec2    `json:"position"`
	Radius   float64 `json:"radius"`
}

// Contains reports whether p lies within the pocket.
func (pk Pocket) Contains(p Vec2) bool {
	return pk.Position.Minus(p).MagnitudeSquared() <= pk.Radius*pk.Radius
}

// Table holds the static table geometry.
type Table struct {
	Bounds  Rect     `json:"bounds"` // playing rectangle, ball edges reflect off it
	Pockets []Pocket `json:"pockets"`
}

// NewStandardTable creates the table geometry: the frame inset by TableBorder,
// with pockets at the four corners and the middle of both long rails.
func NewStandardTable() *Table {
	b := Rect{MinX: TableBorder, MinY: TableBorder, MaxX: TableWidth - TableBorder, MaxY: TableHeight - TableBorder}
	midX := TableWidth / 2

	centers := []Vec2{
		NewVec2(b.MinX, b.MinY),
		NewVec2(midX, b.MinY),
		NewVec2(b.MaxX, b.MinY),
		NewVec2(b.MinX, b.MaxY),
		NewVec2(midX, b.MaxY),
		NewVec2(b.MaxX, b.MaxY),
	}

	pockets := make([]Pocket, len(centers))
	for i, c := range centers {
		pockets[i] = Pocket{ID: i, Position: c, Radius: PocketRadius}
	}

	return &Table{Bounds: b, Pockets: pockets}
}

// BallBounds is the rectangle a ball center may occupy.
func (t *Table) BallBounds() Rect {
	return t.Bounds.Inset(BallRadius)
}

// IsPocketed returns true iff the ball's center lies within any pocket.
func (t *Table) IsPocketed(b *Ball) bool {
	_, ok := t.PocketAt(b.Position)
	return ok
}

// PocketAt returns the pocket containing p, if any.
func (t *Table) PocketAt(p Vec2) (Pocket, bool) {
	for _, pk := range t.Pockets {
		if pk.Contains(p) {
			return pk, true
		}
	}
	return Pocket{}, false
}

// StandardRack returns the starting position of every ball, indexed by id.
func StandardRack() [NumBalls]Vec2 {
	return [NumBalls]Vec2{
		0:  NewVec2(200, 330),
		1:  NewVec2(650, 330),
		2:  NewVec2(685, 310),
		3:  NewVec2(685, 350),
		4:  NewVec2(720, 290),
		5:  NewVec2(720, 330),
		6:  NewVec2(720, 370),
		7:  NewVec2(755, 270),
		8:  NewVec2(755, 310),
		9:  NewVec2(755, 350),
		10: NewVec2(755, 390),
		11: NewVec2(790, 250),
		12: NewVec2(790, 290),
		13: NewVec2(790, 330),
		14: NewVec2(790, 370),
		15: NewVec2(790, 410),
	}
}
