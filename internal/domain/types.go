package domain

// None is the placeholder value of the state and city selects before the
// user picks anything.
const None = "0"

// Item is a collectible item category offered by the backend.
type Item struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	ImageURL string `json:"image_url"`
}

// FormData holds the contact fields typed by the user. Field names match the
// name attributes of the form inputs.
type FormData struct {
	Name     string
	Email    string
	Whatsapp string
}

// GeoPosition is a [latitude, longitude] pair.
type GeoPosition [2]float64

func (p GeoPosition) Lat() float64 { return p[0] }
func (p GeoPosition) Lng() float64 { return p[1] }

// Point is the body sent to the backend when registering a collection point.
type Point struct {
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Whatsapp  string  `json:"whatsapp"`
	UF        string  `json:"uf"`
	City      string  `json:"city"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Items     []int64 `json:"items"`
}
