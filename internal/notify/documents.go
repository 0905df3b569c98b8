package notify

import (
	"bytes"
	htmltemplate "html/template"
	"text/template"

	"github.com/diagnosis/numerology-appointments/internal/domain"
	"github.com/diagnosis/numerology-appointments/internal/platform/mailer"
)

const (
	adminSubject        = "New Appointment Booking"
	clientSubjectPrefix = "Your Appointment Details with "
)

var clientHTML = htmltemplate.Must(htmltemplate.New("client").Parse(`
<h2>Appointment Confirmation</h2>
<p>Dear {{.Req.Name}},</p>
<p>Your appointment has been scheduled with {{.Consultant}}.</p>
<p><strong>Service:</strong> {{.Req.Service}}</p>
<p><strong>Date:</strong> {{.Req.Date}}</p>
<p><strong>Time:</strong> {{.Req.Time}}</p>
<p><strong>Contact No.:</strong> {{.Req.Phone}}</p>
<p><strong>Meeting Link:</strong> <a href="{{.MeetLink}}">Click here to join the meeting</a></p>
<p><strong>For any queries, please contact:</strong></p>
<p>{{.Consultant}}</p>
{{if .Phones}}<p>Phone: {{.Phones}}</p>{{end}}
<p>We look forward to seeing you!</p>
`))

var clientText = template.Must(template.New("client").Parse(`Appointment Confirmation

Dear {{.Req.Name}},

Your appointment has been scheduled with {{.Consultant}}.

Service: {{.Req.Service}}
Date: {{.Req.Date}}
Time: {{.Req.Time}}
Contact No.: {{.Req.Phone}}
Meeting Link: {{.MeetLink}}

For any queries, please contact {{.Consultant}}{{if .Phones}} (Phone: {{.Phones}}){{end}}.
We look forward to seeing you!
`))

var adminHTML = htmltemplate.Must(htmltemplate.New("admin").Parse(`
<h2>New Appointment Booking</h2>
<p>A new appointment has been scheduled.</p>
<p><strong>Client Name:</strong> {{.Req.Name}}</p>
<p><strong>Client Email:</strong> {{.Req.Email}}</p>
<p><strong>Client Phone:</strong> {{.Req.Phone}}</p>
<p><strong>Service:</strong> {{.Req.Service}}</p>
<p><strong>Date:</strong> {{.Req.Date}}</p>
<p><strong>Time:</strong> {{.Req.Time}}</p>
<p><strong>Meeting Link:</strong> <a href="{{.MeetLink}}">Click here to join the meeting</a></p>
`))

var adminText = template.Must(template.New("admin").Parse(`New Appointment Booking

A new appointment has been scheduled.

Client Name: {{.Req.Name}}
Client Email: {{.Req.Email}}
Client Phone: {{.Req.Phone}}
Service: {{.Req.Service}}
Date: {{.Req.Date}}
Time: {{.Req.Time}}
Meeting Link: {{.MeetLink}}
`))

type documentData struct {
	Req        domain.NotificationRequest
	MeetLink   string
	Consultant string
	Phones     string
}

func render(html *htmltemplate.Template, text *template.Template, data documentData) (string, string, error) {
	var h, t bytes.Buffer
	if err := html.Execute(&h, data); err != nil {
		return "", "", err
	}
	if err := text.Execute(&t, data); err != nil {
		return "", "", err
	}
	return h.String(), t.String(), nil
}

func (g *Gateway) clientDocument(req domain.NotificationRequest, ref domain.MeetingReference) (mailer.Document, error) {
	html, text, err := render(clientHTML, clientText, g.documentData(req, ref))
	if err != nil {
		return mailer.Document{}, err
	}
	return mailer.Document{
		From:    g.cfg.From,
		To:      req.Email,
		ToName:  req.Name,
		Subject: clientSubjectPrefix + g.cfg.ConsultantName,
		HTML:    html,
		Text:    text,
	}, nil
}

func (g *Gateway) adminDocument(req domain.NotificationRequest, ref domain.MeetingReference) (mailer.Document, error) {
	html, text, err := render(adminHTML, adminText, g.documentData(req, ref))
	if err != nil {
		return mailer.Document{}, err
	}
	return mailer.Document{
		From:    g.cfg.From,
		To:      g.cfg.AdminEmail,
		Subject: adminSubject,
		HTML:    html,
		Text:    text,
	}, nil
}

func (g *Gateway) documentData(req domain.NotificationRequest, ref domain.MeetingReference) documentData {
	return documentData{
		Req:        req,
		MeetLink:   string(ref),
		Consultant: g.cfg.ConsultantName,
		Phones:     g.cfg.ConsultantPhones,
	}
}
