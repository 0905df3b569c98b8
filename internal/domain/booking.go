package domain

type ServiceKind string

const (
	ServiceNumerology ServiceKind = "numerology"
	ServiceAstrology  ServiceKind = "astrology"
	ServiceBoth       ServiceKind = "both"
)

// ServiceOption is one entry of the service picker.
type ServiceOption struct {
	Value ServiceKind
	Label string
}

var ServiceOptions = []ServiceOption{
	{Value: ServiceNumerology, Label: "Numerology Reading"},
	{Value: ServiceAstrology, Label: "Astrology Consultation"},
	{Value: ServiceBoth, Label: "Combined Reading"},
}

func ParseServiceKind(s string) (ServiceKind, bool) {
	switch ServiceKind(s) {
	case ServiceNumerology, ServiceAstrology, ServiceBoth:
		return ServiceKind(s), true
	default:
		return "", false
	}
}

func (k ServiceKind) Label() string {
	for _, opt := range ServiceOptions {
		if opt.Value == k {
			return opt.Label
		}
	}
	return string(k)
}

// NotificationRequest is the wire body of POST /api/send-meeting-link.
// Date and Time arrive already formatted for display and are relayed as text.
type NotificationRequest struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Date    string `json:"date"`
	Time    string `json:"time"`
	Service string `json:"service"`
	Phone   string `json:"phone"`
}

// RequiredFields lists the JSON names every NotificationRequest must carry.
var RequiredFields = []string{"email", "name", "date", "time", "service", "phone"}

// Fields maps each required JSON name to its value.
func (r NotificationRequest) Fields() map[string]string {
	return map[string]string{
		"email":   r.Email,
		"name":    r.Name,
		"date":    r.Date,
		"time":    r.Time,
		"service": r.Service,
		"phone":   r.Phone,
	}
}

// MeetingReference is a joinable meeting room URL.
type MeetingReference string

type MeetingLinkResponse struct {
	Message  string           `json:"message"`
	MeetLink MeetingReference `json:"meetLink"`
}

const MeetingLinkSent = "Meeting link sent successfully"
