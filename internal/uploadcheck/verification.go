package uploadcheck

import (
	"fmt"

	"github.com/okian/resumescore/internal/domain/report"
)

// verifyRejection checks that a rejected upload was refused for the
// expected reason.
func verifyRejection(u Upload, status int, apiErr apiError) error {
	if status != u.Expect {
		return fmt.Errorf("%s: status %d, want %d", u.Name, status, u.Expect)
	}
	if apiErr.Code != u.Code {
		return fmt.Errorf("%s: code %q, want %q", u.Name, apiErr.Code, u.Code)
	}
	if apiErr.Title == "" || apiErr.Message == "" {
		return fmt.Errorf("%s: rejection without title or reason", u.Name)
	}
	return nil
}

// verifyReport checks the internal consistency of a score report.
func verifyReport(rep scoreReport) error {
	if rep.Overall < 0 || rep.Overall > 100 {
		return fmt.Errorf("overall score %d out of range", rep.Overall)
	}
	if want := report.Label(rep.Overall); rep.Label != want {
		return fmt.Errorf("label %q for score %d, want %q", rep.Label, rep.Overall, want)
	}
	if len(rep.Categories) == 0 {
		return fmt.Errorf("report has no categories")
	}
	for _, c := range rep.Categories {
		if c.Score < 0 || c.Score > 100 {
			return fmt.Errorf("category %q score %d out of range", c.Name, c.Score)
		}
	}
	return nil
}
