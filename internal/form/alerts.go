package form

// Failure names the category of a failed page operation. Every failure of a
// category looks the same to the user, whatever the cause.
type Failure int

const (
	GeolocationUnavailable Failure = iota + 1
	ItemsFetchFailed
	UfFetchFailed
	CityFetchFailed
	SubmitFailed
)

func (f Failure) String() string {
	switch f {
	case GeolocationUnavailable:
		return "geolocation_unavailable"
	case ItemsFetchFailed:
		return "items_fetch_failed"
	case UfFetchFailed:
		return "uf_fetch_failed"
	case CityFetchFailed:
		return "city_fetch_failed"
	case SubmitFailed:
		return "submit_failed"
	default:
		return "unknown"
	}
}

// Message is the text shown to the user. Geolocation failures are never
// shown and have no message.
func (f Failure) Message() string {
	switch f {
	case ItemsFetchFailed:
		return "Erro ao buscar itens de coleta"
	case UfFetchFailed:
		return "Erro ao buscar uf's"
	case CityFetchFailed:
		return "Erro ao buscar municipios"
	case SubmitFailed:
		return "Erro ao criar o ponto de coleta"
	default:
		return ""
	}
}

// Alert is a blocking message waiting to be shown to the user.
type Alert struct {
	Failure Failure
	Message string
}

func newAlert(f Failure) Alert {
	return Alert{Failure: f, Message: f.Message()}
}
