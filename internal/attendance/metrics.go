package attendance

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var marksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ontime_attendance_marks_total",
	Help: "Attendance mark calls by result.",
}, []string{"result"})
