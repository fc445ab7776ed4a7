// Package timezone pins every clock read to the configured application
// timezone. Slot windows, scheduled booking times, and punctuality grading
// all compare instants, so the one place the zone matters is when times are
// parsed from or rendered for clients.
//
//	now := timezone.Now()                    // current time in the app zone
//	appTime := timezone.ToAppTime(someTime)  // convert into the app zone
//	formatted := timezone.Format(time.Now(), "2006-01-02 15:04:05")
//	t, err := timezone.Parse("2006-01-02", "2026-03-14")
//
// The zone comes from the APP_TIMEZONE environment variable and must be a
// standard IANA name such as "UTC" or "Asia/Jakarta". It is resolved once at
// package initialization.
package timezone
