package crawl

import (
	"fmt"
	"time"

	"github.com/metaboatrace/crawler/internal/boatrace"
)

const officialBaseURL = "https://www.boatrace.jp/owpc/pc"

func raceInformationPageURL(key boatrace.RaceKey) string {
	return racePageURL("racelist", key)
}

func beforeInformationPageURL(key boatrace.RaceKey) string {
	return racePageURL("beforeinfo", key)
}

func trifectaOddsPageURL(key boatrace.RaceKey) string {
	return racePageURL("odds3t", key)
}

func raceResultPageURL(key boatrace.RaceKey) string {
	return racePageURL("raceresult", key)
}

func racePageURL(page string, key boatrace.RaceKey) string {
	return fmt.Sprintf("%s/race/%s?rno=%d&jcd=%02d&hd=%s",
		officialBaseURL, page, key.RaceNumber, key.StadiumTelCode, key.Date.Format("20060102"))
}

func monthlySchedulePageURL(year int, month time.Month) string {
	return fmt.Sprintf("%s/race/monthlyschedule?ym=%04d%02d", officialBaseURL, year, month)
}

func eventHoldingPageURL(date time.Time) string {
	return fmt.Sprintf("%s/race/index?hd=%s", officialBaseURL, date.Format("20060102"))
}

func preInspectionPageURL(stadium boatrace.StadiumTelCode, date time.Time) string {
	return fmt.Sprintf("%s/race/rankingmotor?jcd=%02d&hd=%s", officialBaseURL, stadium, date.Format("20060102"))
}

func racerProfilePageURL(registrationNumber int) string {
	return fmt.Sprintf("%s/data/racersearch/profile?toban=%d", officialBaseURL, registrationNumber)
}
