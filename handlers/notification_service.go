package handlers

import (
	"bytes"
	"fmt"
	"log"
	"text/template"

	"gorm.io/gorm"
	"p9e.in/roofline/config"
	"p9e.in/roofline/models"
)

// NotificationService renders and enqueues outbox notifications. Delivery is
// a separate process reading pending rows; enqueue failures are logged and
// never fail the business operation that triggered them.
type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService() *NotificationService {
	return &NotificationService{db: config.DB}
}

var notificationTemplates = map[models.NotificationEvent]struct {
	Subject string
	Body    string
}{
	models.NotificationEventLeadCreated: {
		Subject: "We received your roofing request",
		Body:    "Hi {{.FirstName}}, thanks for reaching out. A member of our team will contact you within one business day about your {{.ProjectType}} project at {{.Address}}.",
	},
	models.NotificationEventEstimateSent: {
		Subject: "Your roofing estimate is ready",
		Body:    "Hi {{.FirstName}}, your estimate for {{.Address}} is ready to review. Estimated total: ${{printf \"%.2f\" .Amount}}.",
	},
	models.NotificationEventEstimateAccepted: {
		Subject: "Estimate accepted",
		Body:    "{{.FirstName}} {{.LastName}} accepted the estimate for {{.Address}} (${{printf \"%.2f\" .Amount}}).",
	},
	models.NotificationEventInvoiceCreated: {
		Subject: "Invoice {{.InvoiceNumber}}",
		Body:    "Hi {{.FirstName}}, invoice {{.InvoiceNumber}} for {{.MilestoneName}} is now due: ${{printf \"%.2f\" .Amount}}.",
	},
	models.NotificationEventJobScheduled: {
		Subject: "Your roofing project is scheduled",
		Body:    "Hi {{.FirstName}}, your project at {{.Address}} has been scheduled. We will confirm the crew arrival window closer to the start date.",
	},
}

// notificationContext holds the fields the templates may reference.
type notificationContext struct {
	FirstName     string
	LastName      string
	Address       string
	ProjectType   string
	Amount        float64
	InvoiceNumber string
	MilestoneName string
}

func (ns *NotificationService) render(event models.NotificationEvent, ctx notificationContext) (string, string, error) {
	tpl, ok := notificationTemplates[event]
	if !ok {
		return "", "", fmt.Errorf("no template for event %s", event)
	}
	subject, err := renderTemplate(tpl.Subject, ctx)
	if err != nil {
		return "", "", err
	}
	body, err := renderTemplate(tpl.Body, ctx)
	if err != nil {
		return "", "", err
	}
	return subject, body, nil
}

func renderTemplate(text string, ctx notificationContext) (string, error) {
	tmpl, err := template.New("notification").Parse(text)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ctx); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (ns *NotificationService) enqueue(n models.Notification) {
	if n.Recipient == "" {
		log.Printf("⚠️  No recipient for %s notification, skipping", n.Event)
		return
	}
	if err := ns.db.Create(&n).Error; err != nil {
		log.Printf("❌ Failed to enqueue %s notification: %v", n.Event, err)
		return
	}
	log.Printf("✅ Enqueued %s notification for %s", n.Event, n.Recipient)
}

func leadContext(lead *models.Lead) notificationContext {
	return notificationContext{
		FirstName:   lead.FirstName,
		LastName:    lead.LastName,
		Address:     fmt.Sprintf("%s, %s", lead.AddressLine1, lead.City),
		ProjectType: lead.ProjectType,
	}
}

// channelFor prefers email and falls back to SMS when the lead only left a
// phone number.
func channelFor(lead *models.Lead) (models.NotificationChannel, string) {
	if lead.Email != "" {
		return models.NotificationChannelEmail, lead.Email
	}
	return models.NotificationChannelSMS, lead.Phone
}

// NotifyLeadCreated sends the intake acknowledgement to the homeowner.
func (ns *NotificationService) NotifyLeadCreated(lead *models.Lead) {
	ctx := leadContext(lead)
	if ctx.ProjectType == "" {
		ctx.ProjectType = "roofing"
	}
	subject, body, err := ns.render(models.NotificationEventLeadCreated, ctx)
	if err != nil {
		log.Printf("❌ Failed to render lead_created notification: %v", err)
		return
	}
	channel, recipient := channelFor(lead)
	ns.enqueue(models.Notification{
		Event:     models.NotificationEventLeadCreated,
		Channel:   channel,
		Status:    models.NotificationStatusPending,
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
		LeadID:    &lead.ID,
	})
}

// NotifyEstimateSent tells the homeowner their estimate is ready.
func (ns *NotificationService) NotifyEstimateSent(lead *models.Lead, amount float64) {
	ctx := leadContext(lead)
	ctx.Amount = amount
	subject, body, err := ns.render(models.NotificationEventEstimateSent, ctx)
	if err != nil {
		log.Printf("❌ Failed to render estimate_sent notification: %v", err)
		return
	}
	channel, recipient := channelFor(lead)
	ns.enqueue(models.Notification{
		Event:     models.NotificationEventEstimateSent,
		Channel:   channel,
		Status:    models.NotificationStatusPending,
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
		LeadID:    &lead.ID,
	})
}

// NotifyEstimateAccepted alerts the office in-app when a customer accepts.
func (ns *NotificationService) NotifyEstimateAccepted(lead *models.Lead, amount float64) {
	ctx := leadContext(lead)
	ctx.Amount = amount
	subject, body, err := ns.render(models.NotificationEventEstimateAccepted, ctx)
	if err != nil {
		log.Printf("❌ Failed to render estimate_accepted notification: %v", err)
		return
	}
	ns.enqueue(models.Notification{
		Event:     models.NotificationEventEstimateAccepted,
		Channel:   models.NotificationChannelInApp,
		Status:    models.NotificationStatusPending,
		Recipient: "office",
		Subject:   subject,
		Body:      body,
		LeadID:    &lead.ID,
	})
}

// NotifyInvoiceCreated sends a milestone invoice to the customer.
func (ns *NotificationService) NotifyInvoiceCreated(lead *models.Lead, invoice *models.Invoice, milestoneName string) {
	ctx := leadContext(lead)
	ctx.Amount = invoice.Amount
	ctx.InvoiceNumber = invoice.InvoiceNumber
	ctx.MilestoneName = milestoneName
	subject, body, err := ns.render(models.NotificationEventInvoiceCreated, ctx)
	if err != nil {
		log.Printf("❌ Failed to render invoice_created notification: %v", err)
		return
	}
	channel, recipient := channelFor(lead)
	ns.enqueue(models.Notification{
		Event:     models.NotificationEventInvoiceCreated,
		Channel:   channel,
		Status:    models.NotificationStatusPending,
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
		LeadID:    &lead.ID,
		InvoiceID: &invoice.ID,
		JobID:     &invoice.JobID,
	})
}

// NotifyJobScheduled confirms scheduling with the customer.
func (ns *NotificationService) NotifyJobScheduled(lead *models.Lead, job *models.Job) {
	ctx := leadContext(lead)
	subject, body, err := ns.render(models.NotificationEventJobScheduled, ctx)
	if err != nil {
		log.Printf("❌ Failed to render job_scheduled notification: %v", err)
		return
	}
	channel, recipient := channelFor(lead)
	ns.enqueue(models.Notification{
		Event:     models.NotificationEventJobScheduled,
		Channel:   channel,
		Status:    models.NotificationStatusPending,
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
		LeadID:    &lead.ID,
		JobID:     &job.ID,
	})
}
