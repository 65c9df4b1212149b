package utils

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
	"strings"
)

// BuildSelfServiceLink points the visitor at the pre-arrival self-service
// flow (induction + document acceptance) for their visit.
func BuildSelfServiceLink(frontendURL, accessToken string) string {
	if frontendURL == "" {
		frontendURL = "http://localhost:3000"
	}
	return fmt.Sprintf("%s/self-service?token=%s", strings.TrimRight(frontendURL, "/"), accessToken)
}

// SendVisitInviteEmail emails the visitor their visit details and
// self-service link. When SMTP is not configured the send is mocked to the
// log so dev environments work without a mail server.
func SendVisitInviteEmail(
	recipientEmail,
	visitorName,
	siteName,
	hostName,
	purpose,
	plannedArrival,
	selfServiceLink string,
) error {

	smtpHost := os.Getenv("SMTP_HOST")
	smtpPort := os.Getenv("SMTP_PORT")
	smtpUser := os.Getenv("SMTP_USERNAME")
	smtpPass := os.Getenv("SMTP_PASSWORD")
	fromName := EnvOrDefault("SMTP_FROM_NAME", "Visitor Management")

	if smtpUser == "" || smtpPass == "" || smtpHost == "" || smtpPort == "" {
		log.Printf("[MOCK EMAIL] to:%s site:%s host:%s arrival:%s link:%s",
			recipientEmail, siteName, hostName, plannedArrival, selfServiceLink)
		return nil
	}

	safe := func(s string) string {
		return strings.ReplaceAll(strings.TrimSpace(s), "\r\n", " ")
	}
	visitorName = safe(visitorName)
	siteName = safe(siteName)
	hostName = safe(hostName)
	purpose = safe(purpose)
	plannedArrival = safe(plannedArrival)

	if !(strings.HasPrefix(selfServiceLink, "http://") || strings.HasPrefix(selfServiceLink, "https://")) {
		selfServiceLink = "https://" + strings.TrimLeft(selfServiceLink, "/")
	}

	from := fmt.Sprintf("%s <%s>", fromName, smtpUser)
	to := []string{recipientEmail}
	auth := smtp.PlainAuth("", smtpUser, smtpPass, smtpHost)
	addr := fmt.Sprintf("%s:%s", smtpHost, smtpPort)

	subject := fmt.Sprintf("Your visit to %s", siteName)

	body := fmt.Sprintf(
		"Dear %s,\n\n"+
			"A visit has been scheduled for you:\n\n"+
			"Site: %s\n"+
			"Host: %s\n"+
			"Purpose: %s\n"+
			"Planned arrival: %s\n\n"+
			"Please complete your pre-arrival steps before you travel:\n%s\n\n"+
			"Best regards,\n%s",
		visitorName, siteName, hostName, purpose, plannedArrival, selfServiceLink, fromName,
	)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("From: %s\r\n", from))
	sb.WriteString(fmt.Sprintf("To: %s\r\n", recipientEmail))
	sb.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	sb.WriteString(body + "\r\n")

	if err := smtp.SendMail(addr, auth, smtpUser, to, []byte(sb.String())); err != nil {
		log.Printf("failed to send visit invite to %s: %v", recipientEmail, err)
		return err
	}
	return nil
}
