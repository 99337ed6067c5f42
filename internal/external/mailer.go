package external

import (
	"context"
	"fmt"
	"strings"

	"saggita/internal/models"

	"github.com/resend/resend-go/v2"
)

type MailerConfig struct {
	APIKey      string
	From        string
	AdminEmail  string
	BankAccount string
	BankName    string
}

// Mailer sends transactional text mails through the Resend API
type Mailer struct {
	client *resend.Client
	config MailerConfig
}

func NewMailer(cfg MailerConfig) *Mailer {
	return &Mailer{
		client: resend.NewClient(cfg.APIKey),
		config: cfg,
	}
}

func (m *Mailer) send(ctx context.Context, to, subject string, lines []string) error {
	body := make([]string, 0, len(lines))
	for _, l := range lines {
		body = append(body, l)
	}

	params := &resend.SendEmailRequest{
		From:    m.config.From,
		To:      []string{to},
		Subject: subject,
		Text:    strings.Join(body, "\n"),
	}

	if _, err := m.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("resend send failed: %w", err)
	}
	return nil
}

// SendRegistrationConfirmation mails the registrant their payment reference
// and bank transfer details
func (m *Mailer) SendRegistrationConfirmation(ctx context.Context, ev *models.RegistrationCreatedEvent) error {
	subject := "Potwierdzenie zapisu — Krav Maga Saggita"
	if ev.IsWaitlist {
		subject = "Lista rezerwowa — Krav Maga Saggita"
	}

	lines := []string{
		fmt.Sprintf("Cześć %s,", ev.FirstName),
		"",
	}
	if ev.IsWaitlist {
		lines = append(lines,
			"Grupa jest obecnie pełna — trafiłeś/aś na listę rezerwową.",
			"Odezwiemy się, gdy tylko zwolni się miejsce.")
	} else {
		lines = append(lines, "Dziękujemy — Twój zapis został przyjęty.")
	}
	lines = append(lines,
		"",
		fmt.Sprintf("Kod zgłoszenia: %s", ev.PaymentRef),
		fmt.Sprintf("Grupa: %s (%s)", ev.GroupName, ev.City),
	)
	if ev.TotalAmount > 0 {
		lines = append(lines,
			fmt.Sprintf("Kwota: %.2f zł", ev.TotalAmount),
			fmt.Sprintf("Konto: %s", ev.BankAccount),
			fmt.Sprintf("Odbiorca: %s", ev.BankName),
			fmt.Sprintf("Tytuł przelewu: %s — %s %s", ev.PaymentRef, ev.FirstName, ev.LastName),
		)
	}
	lines = append(lines,
		"",
		"W razie pytań:",
		m.config.AdminEmail,
	)

	return m.send(ctx, ev.Email, subject, lines)
}

// SendRegistrationAdminCopy notifies the office about a new registration
func (m *Mailer) SendRegistrationAdminCopy(ctx context.Context, ev *models.RegistrationCreatedEvent) error {
	subject := fmt.Sprintf("Nowy zapis: %s %s (%s)", ev.FirstName, ev.LastName, ev.PaymentRef)
	lines := []string{
		fmt.Sprintf("Grupa: %s (%s)", ev.GroupName, ev.City),
		fmt.Sprintf("Email: %s", ev.Email),
		fmt.Sprintf("Telefon: %s", ev.Phone),
		fmt.Sprintf("Kwota: %.2f zł", ev.TotalAmount),
		fmt.Sprintf("Lista rezerwowa: %t", ev.IsWaitlist),
	}
	return m.send(ctx, m.config.AdminEmail, subject, lines)
}

// SendActionMail mails the registrant after a finalize action
func (m *Mailer) SendActionMail(ctx context.Context, ev *models.ActionSubmittedEvent) error {
	fullName := strings.TrimSpace(ev.FirstName + " " + ev.LastName)

	switch ev.Action {
	case models.ActionDownloadDoc:
		lines := []string{
			fmt.Sprintf("Cześć %s,", ev.FirstName),
			"",
			"Twoja rezerwacja miejsca została przyjęta.",
			"",
			fmt.Sprintf("Kod zgłoszenia: %s", ev.PaymentRef),
			fmt.Sprintf("Uczestnik: %s", fullName),
			fmt.Sprintf("Kwota: %.2f zł", ev.TotalAmount),
			"",
		}
		if ev.DueDate != nil {
			lines = append(lines,
				fmt.Sprintf("Na opłatę masz 3 dni robocze (do %s).", *ev.DueDate),
				"Po tym czasie rezerwacja przepada.",
				"")
		}
		lines = append(lines, "W razie pytań:", m.config.AdminEmail)
		return m.send(ctx, ev.Email, "Rezerwacja miejsca — oczekujemy na wpłatę (3 dni robocze)", lines)

	case models.ActionPaymentConfirmed:
		lines := []string{
			fmt.Sprintf("Cześć %s,", ev.FirstName),
			"",
			"Zaksięgowaliśmy Twoją wpłatę — do zobaczenia na treningu!",
			"",
			fmt.Sprintf("Kod zgłoszenia: %s", ev.PaymentRef),
			fmt.Sprintf("Kwota: %.2f zł", ev.TotalAmount),
		}
		return m.send(ctx, ev.Email, "Wpłata zaksięgowana — Krav Maga Saggita", lines)

	default: // pay_online
		lines := []string{
			fmt.Sprintf("Cześć %s,", ev.FirstName),
			"",
			"Dziękujemy — Twój zapis został przyjęty.",
			"",
			fmt.Sprintf("Kod zgłoszenia: %s", ev.PaymentRef),
			fmt.Sprintf("Uczestnik: %s", fullName),
			fmt.Sprintf("Kwota: %.2f zł", ev.TotalAmount),
			"",
			"Płatność online jest w trakcie podpinania.",
			"Jeśli chcesz zapłacić przelewem, użyj danych z potwierdzenia na stronie.",
			"",
			"W razie pytań:",
			m.config.AdminEmail,
		}
		return m.send(ctx, ev.Email, "Potwierdzenie zapisu — Krav Maga Saggita", lines)
	}
}
