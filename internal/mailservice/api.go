package mailservice

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// APIMail sends through a transactional email HTTP API (Brevo style: a JSON
// POST authenticated with an api-key header). It renders the same template set
// as the SMTP mailer.
type APIMail struct {
	client *http.Client
	url    string
	apiKey string
	sender string
	parser TemplateParser
}

func NewAPIMailer(url, apiKey, sender string, tp *Template) *APIMail {
	return &APIMail{
		client: &http.Client{Timeout: 10 * time.Second},
		url:    url,
		apiKey: apiKey,
		sender: sender,
		parser: tp,
	}
}

type apiAddress struct {
	Email string `json:"email"`
}

type apiPayload struct {
	Sender      apiAddress   `json:"sender"`
	To          []apiAddress `json:"to"`
	Subject     string       `json:"subject"`
	TextContent string       `json:"textContent"`
	HTMLContent string       `json:"htmlContent"`
}

func (m *APIMail) send(recipient string, data any, templateFile string) error {
	subject, plainBody, htmlBody, err := m.parser.ParseTemplate(templateFile, data)
	if err != nil {
		return err
	}

	payload := apiPayload{
		Sender:      apiAddress{Email: m.sender},
		To:          []apiAddress{{Email: recipient}},
		Subject:     subject.String(),
		TextContent: plainBody.String(),
		HTMLContent: htmlBody.String(),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("could not marshal mail payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, m.url, bytes.NewReader(body))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("api-key", m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("mail api returned status %d", resp.StatusCode)
	}

	return nil
}
