package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCourseIDs(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []int64
	}{
		{name: "empty", raw: "", want: []int64{}},
		{name: "commas and spaces", raw: "101, 102 ,103", want: []int64{101, 102, 103}},
		{name: "newlines and tabs", raw: "101\n102\r\n\t103", want: []int64{101, 102, 103}},
		{name: "non numeric tokens dropped", raw: "101 abc 12x -5 102", want: []int64{101, 102}},
		{name: "duplicates keep first position", raw: "5,3,5,1,3", want: []int64{5, 3, 1}},
		{name: "zero dropped", raw: "0 007", want: []int64{7}},
		{name: "overflow dropped", raw: "99999999999999999999 4", want: []int64{4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCourseIDs(tt.raw))
		})
	}
}

func TestAuditRequestResolve(t *testing.T) {
	req := AuditRequest{CourseIDs: []int64{9, 4}, RawCourseIDs: "4\n10"}
	assert.Equal(t, []int64{9, 4, 10}, req.Resolve())
}
