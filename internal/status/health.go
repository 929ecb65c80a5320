package status

import "github.com/surge-devops/surge/internal/collect"

// HealthScore rates a snapshot from 0 to 100. Missing sections do not
// count against the score.
func HealthScore(s *collect.Snapshot) int {
	if s == nil {
		return 0
	}
	score := 100

	if s.Load != nil {
		perCore := s.Load.PerCore()[0]
		switch collect.ClassifyLoad(perCore) {
		case collect.LoadOverloaded:
			score -= 30
		case collect.LoadHigh:
			score -= 15
		}
	}
	if s.CPU != nil {
		score -= penalty(s.CPU.Busy(), 50, 75, 90, 5, 15, 25)
	}
	if s.Memory != nil {
		score -= penalty(s.Memory.UsedPercent(), 60, 75, 90, 5, 15, 25)
	}
	if s.Disk != nil {
		score -= penalty(s.Disk.UsedPercent, 70, 80, 90, 5, 10, 20)
	}

	if score < 0 {
		return 0
	}
	return score
}

func penalty(v, low, mid, high float64, pLow, pMid, pHigh int) int {
	switch {
	case v >= high:
		return pHigh
	case v >= mid:
		return pMid
	case v >= low:
		return pLow
	default:
		return 0
	}
}

// HealthLabel names a score band.
func HealthLabel(score int) string {
	switch {
	case score < 50:
		return "CRITICAL"
	case score < 70:
		return "FAIR"
	case score < 90:
		return "GOOD"
	default:
		return "EXCELLENT"
	}
}
