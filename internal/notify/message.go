package notify

import (
	"fmt"
	"strings"

	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/models"
)

const APIDownSubject = "API is DOWN Please Start"

// APIDown builds the operator alert sent when a video is parked because the
// generation API failed its health check.
func APIDown(v *models.Video) (subject, body string) {
	var b strings.Builder
	fmt.Fprintf(&b, "Video_title === %s\n\n", v.Title)
	fmt.Fprintf(&b, "Video_user === %d\n\n", v.OwnerID)
	fmt.Fprintf(&b, "Video_status === %s\n\n", v.Status)
	fmt.Fprintf(&b, "Video_prompt === %s\n\n", v.Prompt)
	fmt.Fprintf(&b, "Video_id === %d\n", v.ID)
	return APIDownSubject, b.String()
}
