package model

// Sport is a lookup row describing a sport offered by the platform.  The
// color and icon fields drive presentation in clients and carry no server
// side behaviour.
type Sport struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"` // hex color, e.g. #278DD4
	Icon  string `json:"icon"`
}
