package model

const EVENT_TICKET_CREATED string = "ticket/created"
const EVENT_USER_SIGNUP string = "user/signup"

type Event struct {
	Name string         `json:"name"`
	Data map[string]any `json:"data"`
}

func (e Event) StringData(key string) string {
	v, ok := e.Data[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}
