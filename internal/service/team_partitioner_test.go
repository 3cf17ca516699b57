package service

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

func sizes[T any](groups [][]T) []int {
	out := make([]int, len(groups))
	for i, g := range groups {
		out[i] = len(g)
	}
	return out
}

func TestPartitionStudentsConcrete(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		want  [][]int
		short bool
	}{
		{name: "empty roster", n: 0, want: [][]int{}},
		{name: "single short group is kept", n: 2, want: [][]int{{1, 2}}, short: true},
		{name: "exact multiple", n: 8, want: [][]int{{1, 2, 3, 4}, {5, 6, 7, 8}}},
		{name: "tail of three needs nothing", n: 7, want: [][]int{{1, 2, 3, 4}, {5, 6, 7}}},
		{name: "tail of two takes one", n: 6, want: [][]int{{1, 2, 3}, {5, 6, 4}}},
		{name: "tail of one takes from two donors", n: 9, want: [][]int{{1, 2, 3}, {5, 6, 7}, {9, 8, 4}}},
		{name: "tail of one without second donor", n: 5, want: [][]int{{1, 2, 3, 4}, {5}}, short: true},
		{name: "thirteen", n: 13, want: [][]int{{1, 2, 3, 4}, {5, 6, 7}, {9, 10, 11}, {13, 12, 8}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PartitionStudents(seq(tt.n), 3, 4)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.short, PartitionUnsatisfied(got, 3))
		})
	}
}

func TestPartitionStudentsCoversEveryIDOnce(t *testing.T) {
	for _, bounds := range [][2]int{{3, 4}, {3, 5}, {4, 6}, {3, 8}} {
		minSize, maxSize := bounds[0], bounds[1]
		for n := 0; n <= 60; n++ {
			groups := PartitionStudents(seq(n), minSize, maxSize)

			seen := map[int]int{}
			total := 0
			for i, g := range groups {
				require.NotEmpty(t, g)
				require.LessOrEqual(t, len(g), maxSize, "n=%d bounds=%v", n, bounds)
				if i < len(groups)-1 {
					require.GreaterOrEqual(t, len(g), minSize, "n=%d bounds=%v group=%d", n, bounds, i)
				}
				for _, id := range g {
					seen[id]++
					total++
				}
			}
			require.Equal(t, n, total)
			for id := 1; id <= n; id++ {
				require.Equal(t, 1, seen[id], "id %d for n=%d", id, n)
			}
		}
	}
}

func TestPartitionStudentsTailReachesMinWhenDonorsSuffice(t *testing.T) {
	for n := 1; n <= 60; n++ {
		groups := PartitionStudents(seq(n), 3, 4)
		tail := len(groups[len(groups)-1])
		if len(groups) >= 3 || (len(groups) == 2 && n%4 != 1) {
			assert.GreaterOrEqual(t, tail, 3, "n=%d sizes=%v", n, sizes(groups))
		}
	}
}

func TestPartitionStudentsShapeIgnoresOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for n := 0; n <= 40; n++ {
		ids := seq(n)
		want := sizes(PartitionStudents(ids, 3, 4))

		shuffled := append([]int(nil), ids...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		assert.Equal(t, want, sizes(PartitionStudents(shuffled, 3, 4)))
	}
}

func TestPartitionStudentsDoesNotMutateInput(t *testing.T) {
	ids := seq(9)
	PartitionStudents(ids, 3, 4)
	assert.Equal(t, seq(9), ids)
}

func TestPartitionStudentsClampsBounds(t *testing.T) {
	groups := PartitionStudents(seq(5), 0, 0)
	assert.Equal(t, []int{1, 1, 1, 1, 1}, sizes(groups))
}

func TestSpillOverflowPushesExcessForward(t *testing.T) {
	groups := spillOverflow([][]int{{1, 2, 3, 4, 5, 6}, {7}}, 4)
	assert.Equal(t, [][]int{{1, 2, 3, 4}, {5, 6, 7}}, groups)

	groups = spillOverflow([][]int{{1, 2}, {3, 4, 5, 6, 7}}, 4)
	assert.Equal(t, [][]int{{1, 2}, {3, 4, 5, 6}, {7}}, groups)
}
