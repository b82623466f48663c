package engagement

const (
	BasePoints        = 5
	LongEntryBonus    = 3 // content longer than LongEntryLength
	VeryLongBonus     = 2 // content longer than VeryLongEntryLength, on top of LongEntryBonus
	StreakBonusPoints = 3

	LongEntryLength     = 500
	VeryLongEntryLength = 1000

	MaxPointsPerEntry = BasePoints + LongEntryBonus + VeryLongBonus + StreakBonusPoints
)

// PointsFor returns the points awarded for one entry of contentLength characters.
func PointsFor(contentLength int, streakBonus bool) int {
	points := BasePoints
	if contentLength > LongEntryLength {
		points += LongEntryBonus
	}
	if contentLength > VeryLongEntryLength {
		points += VeryLongBonus
	}
	if streakBonus {
		points += StreakBonusPoints
	}
	return points
}
