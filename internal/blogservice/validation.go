package blogservice

import (
	"regexp"

	"github.com/ktruong/campusblog/internal/common"
)

var (
	TitleRX = regexp.MustCompile("^[a-zA-Z0-9 ]+$")
)

func validateTitle(v *common.Validator, title string) {
	v.Check(title != "", "title", "must be provided")
	v.Check(v.CheckStringLength(title, 3, 100), "title", "must be between 3 and 100 characters long")
	v.Check(TitleRX.MatchString(title), "title", "must only contain letters, numbers, and spaces")
}

func validateContent(v *common.Validator, content string) {
	v.Check(v.CheckNotBlank(content), "content", "must be provided")
}

func validateAuthorName(v *common.Validator, name string) {
	v.Check(name != "", "author_name", "must be provided")
	v.Check(v.CheckStringLength(name, 1, 50), "author_name", "must be between 1 and 50 characters long")
}

func validateBannerKey(v *common.Validator, key string) {
	v.Check(key != "", "banner", "must be provided")
}
