package commentservice

import (
	"regexp"

	"github.com/ktruong/campusblog/internal/common"
)

var EmailRX = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func validateBody(v *common.Validator, body string) {
	v.Check(v.CheckNotBlank(body), "body", "must not be empty")
	v.Check(v.CheckStringLength(body, 1, 2000), "body", "must not be longer than 2000 characters")
}

func validateAuthorName(v *common.Validator, name string) {
	v.Check(name != "", "author_name", "must be provided")
	v.Check(v.CheckStringLength(name, 1, 50), "author_name", "must be between 1 and 50 characters long")
}

func validateAuthorEmail(v *common.Validator, email string) {
	if email == "" {
		return
	}
	v.Check(EmailRX.MatchString(email), "author_email", "must be a valid email address")
}
