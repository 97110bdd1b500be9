package model

import (
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoveAllIndexPairs(t *testing.T) {
	const n = 5
	tasks := make([]Task, n)
	for i := range tasks {
		tasks[i] = Task{ID: fmt.Sprint(i)}
	}

	for from := 0; from < n; from++ {
		for to := 0; to < n; to++ {
			got, err := Move(tasks, from, to)
			require.NoError(t, err)
			require.Len(t, got, n)

			assert.Equal(t, tasks[from].ID, got[to].ID, "from=%d to=%d", from, to)

			gotIDs, wantIDs := ids(got), ids(tasks)
			sort.Strings(gotIDs)
			sort.Strings(wantIDs)
			assert.Equal(t, wantIDs, gotIDs)

			// the others keep their relative order
			var rest, origRest []string
			for _, x := range got {
				if x.ID != tasks[from].ID {
					rest = append(rest, x.ID)
				}
			}
			for _, x := range tasks {
				if x.ID != tasks[from].ID {
					origRest = append(origRest, x.ID)
				}
			}
			assert.Equal(t, origRest, rest)

			if from == to {
				assert.Equal(t, ids(tasks), ids(got))
			}
		}
	}

	assert.Equal(t, []string{"0", "1", "2", "3", "4"}, ids(tasks), "input must not be modified")
}

func TestMoveRejectsBadIndices(t *testing.T) {
	tasks := []Task{{ID: "a"}, {ID: "b"}}

	for _, pair := range [][2]int{{-1, 0}, {0, 2}, {2, 0}, {0, -1}} {
		_, err := Move(tasks, pair[0], pair[1])
		assert.ErrorIs(t, err, ErrIndexOutOfRange)
	}

	_, err := Move(nil, 0, 0)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}
