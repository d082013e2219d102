package report

import (
	"fmt"
	"time"
)

var frWeekdays = [...]string{"dimanche", "lundi", "mardi", "mercredi", "jeudi", "vendredi", "samedi"}

var frMonths = [...]string{"janvier", "février", "mars", "avril", "mai", "juin", "juillet", "août", "septembre", "octobre", "novembre", "décembre"}

// LongDate: "samedi 1 juin 2024"
func LongDate(t time.Time) string {
	return fmt.Sprintf("%s %d %s %d", frWeekdays[t.Weekday()], t.Day(), frMonths[t.Month()-1], t.Year())
}

// ShortDate: "sam. 1 juin 2024"
func ShortDate(t time.Time) string {
	month := frMonths[t.Month()-1]
	if len([]rune(month)) > 4 {
		month = string([]rune(month)[:4]) + "."
	}
	return fmt.Sprintf("%s. %d %s %d", frWeekdays[t.Weekday()][:3], t.Day(), month, t.Year())
}

// MonthName: "juin 2024"
func MonthName(t time.Time) string {
	return fmt.Sprintf("%s %d", frMonths[t.Month()-1], t.Year())
}
