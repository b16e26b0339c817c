package sms

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"tapline/internal/civiltime"
	"tapline/internal/schedule"
)

var nameCaser = cases.Title(language.English)

// AttendanceMessage renders the guardian notification for one scan. Times
// are shown in the site's civil zone in the 12-hour clock guardians expect.
func AttendanceMessage(firstName, lastName string, action schedule.Action, capturedAt time.Time) string {
	name := strings.TrimSpace(nameCaser.String(strings.ToLower(strings.TrimSpace(firstName + " " + lastName))))
	if name == "" {
		name = "your child"
	}

	local := capturedAt.In(civiltime.Zone)
	timeOfDay := local.Format("03:04 PM")
	date := local.Format("02/01/2006")

	actionText := "arrived at"
	if action == schedule.ActionDeparture {
		actionText = "left"
	}
	return fmt.Sprintf("Hello! Your child %s has %s school at %s on %s.", name, actionText, timeOfDay, date)
}
