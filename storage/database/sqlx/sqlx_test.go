package sqlxrepos

import (
	"database/sql"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/lessonplan/core/planner"
	"github.com/trezcool/lessonplan/core/schedule"
	"github.com/trezcool/lessonplan/core/user"
)

func TestFilterUsersQuery(t *testing.T) {
	active := true
	from := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		filter    user.QueryFilter
		wantWhere string
		wantArgs  []interface{}
	}{
		{name: "no filter", wantWhere: "", wantArgs: nil},
		{
			name:      "search",
			filter:    user.QueryFilter{Search: "jo"},
			wantWhere: " WHERE (name ILIKE $1 OR username ILIKE $2 OR email ILIKE $3)",
			wantArgs:  []interface{}{"%jo%", "%jo%", "%jo%"},
		},
		{
			name:      "roles",
			filter:    user.QueryFilter{Roles: []string{"admin"}},
			wantWhere: " WHERE EXISTS (SELECT 1 FROM UNNEST(roles) user_role WHERE user_role ILIKE ANY($1))",
			wantArgs:  []interface{}{pq.Array([]string{"admin%"})},
		},
		{
			name:      "combined",
			filter:    user.QueryFilter{Search: "jo", IsActive: &active, CreatedFrom: from},
			wantWhere: " WHERE (name ILIKE $1 OR username ILIKE $2 OR email ILIKE $3) AND is_active = $4 AND created_at >= $5",
			wantArgs:  []interface{}{"%jo%", "%jo%", "%jo%", true, from},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, args, err := filterUsersQuery(tt.filter).ToSql()
			require.NoError(t, err)
			assert.Equal(t, "SELECT "+userColumns+" FROM users"+tt.wantWhere+" ORDER BY created_at, id", q)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestEventsQuery(t *testing.T) {
	from := time.Date(2024, 9, 9, 15, 0, 0, 0, time.UTC)
	q, args, err := eventsQuery(3, planner.EventFilter{From: from, CourseID: 7}).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, configuration_id, date, period, kind, course_id, lesson_id, duty FROM schedule_events "+
		"WHERE configuration_id = $1 AND date >= $2 AND course_id = $3 ORDER BY date, period, id", q)
	assert.Equal(t, []interface{}{int64(3), time.Date(2024, 9, 9, 0, 0, 0, 0, time.UTC), int64(7)}, args)
}

func TestConfigurationsQuery(t *testing.T) {
	template := true
	q, args, err := configurationsQuery("u1", schedule.QueryFilter{IsTemplate: &template}).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT "+configurationColumns+" FROM schedule_configurations "+
		"WHERE user_id::text = $1 AND is_template = $2 ORDER BY id", q)
	assert.Equal(t, []interface{}{"u1", true}, args)
}

func TestTrapNoRowsErr(t *testing.T) {
	notFound := errors.New("not found")
	other := errors.New("boom")

	assert.Equal(t, notFound, trapNoRowsErr(sql.ErrNoRows, notFound, "finding"))
	err := trapNoRowsErr(other, notFound, "finding")
	assert.Equal(t, other, errors.Cause(err))
	assert.EqualError(t, err, "finding: boom")
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pq.Error{Code: uniqueViolation}))
	assert.True(t, isUniqueViolation(errors.Wrap(&pq.Error{Code: uniqueViolation}, "inserting")))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("boom")))
}
