package service

// PartitionStudents splits ids into teams of at most maxSize members.
//
// The roster is chunked greedily into consecutive groups of maxSize. When the trailing group
// falls short of minSize and the preceding groups hold enough surplus (members above minSize)
// to cover the deficit, one member at a time is moved from the nearest preceding group that
// still has surplus. If the surplus is insufficient nothing moves and the trailing group stays
// short; callers detect that with PartitionUnsatisfied. Every id appears exactly once.
func PartitionStudents[T any](ids []T, minSize, maxSize int) [][]T {
	if minSize < 1 {
		minSize = 1
	}
	if maxSize < minSize {
		maxSize = minSize
	}

	groups := make([][]T, 0, (len(ids)+maxSize-1)/maxSize)
	for start := 0; start < len(ids); start += maxSize {
		end := start + maxSize
		if end > len(ids) {
			end = len(ids)
		}
		group := make([]T, end-start, maxSize)
		copy(group, ids[start:end])
		groups = append(groups, group)
	}
	if len(groups) < 2 {
		return groups
	}

	rebalanceTail(groups, minSize)
	return spillOverflow(groups, maxSize)
}

// PartitionUnsatisfied reports whether any team ended below minSize.
func PartitionUnsatisfied[T any](groups [][]T, minSize int) bool {
	for _, g := range groups {
		if len(g) < minSize {
			return true
		}
	}
	return false
}

func rebalanceTail[T any](groups [][]T, minSize int) {
	last := len(groups) - 1
	deficit := minSize - len(groups[last])
	if deficit <= 0 {
		return
	}

	surplus := 0
	for i := last - 1; i >= 0 && surplus < deficit; i-- {
		if extra := len(groups[i]) - minSize; extra > 0 {
			surplus += extra
		}
	}
	if surplus < deficit {
		return
	}

	for moved := 0; moved < deficit; moved++ {
		donor := nearestDonor(groups, last, minSize)
		if donor < 0 {
			return
		}
		n := len(groups[donor])
		groups[last] = append(groups[last], groups[donor][n-1])
		groups[donor] = groups[donor][:n-1]
	}
}

// nearestDonor scans backward from the group before last for one holding more than minSize.
func nearestDonor[T any](groups [][]T, last, minSize int) int {
	for i := last - 1; i >= 0; i-- {
		if len(groups[i]) > minSize {
			return i
		}
	}
	return -1
}

func spillOverflow[T any](groups [][]T, maxSize int) [][]T {
	for i := 0; i < len(groups); i++ {
		if len(groups[i]) <= maxSize {
			continue
		}
		excess := append([]T(nil), groups[i][maxSize:]...)
		groups[i] = groups[i][:maxSize]
		if i+1 == len(groups) {
			groups = append(groups, excess)
			continue
		}
		groups[i+1] = append(excess, groups[i+1]...)
	}
	return groups
}
