package main

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"campusattend/internal/apperr"
	"campusattend/internal/auth"
	"campusattend/internal/authz"
	"campusattend/internal/queue"
)

func (a *api) studentStats(c *gin.Context) {
	res, err := a.reports.StudentStats(c.Request.Context(), auth.CallerFrom(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": res})
}

func (a *api) teacherReport(c *gin.Context) {
	from, err := parseTimeQuery(c, "from")
	if err != nil {
		respondErr(c, err)
		return
	}
	to, err := parseTimeQuery(c, "to")
	if err != nil {
		respondErr(c, err)
		return
	}

	res, err := a.reports.TeacherSubjectReport(c.Request.Context(), auth.CallerFrom(c), c.Query("subjectId"), from, to)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (a *api) teacherSummary(c *gin.Context) {
	caller := auth.CallerFrom(c)
	if caller.Role != authz.RoleTeacher && caller.Role != authz.RoleAdmin {
		respondErr(c, apperr.Forbidden("you do not have permission to access this resource"))
		return
	}
	res, err := a.reports.TeacherSummary(c.Request.Context(), caller)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": res})
}

func (a *api) overallReport(c *gin.Context) {
	from, err := parseTimeQuery(c, "from")
	if err != nil {
		respondErr(c, err)
		return
	}
	to, err := parseTimeQuery(c, "to")
	if err != nil {
		respondErr(c, err)
		return
	}

	res, err := a.reports.OverallReport(c.Request.Context(), auth.CallerFrom(c), c.Query("programId"), c.Query("batchId"), from, to)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": res})
}

// sendGuardianReports enqueues one mail job per student in the batch.
// Delivery happens in the worker; this returns as soon as the jobs are
// queued.
func (a *api) sendGuardianReports(c *gin.Context) {
	caller := auth.CallerFrom(c)
	if !authz.Allow(caller, "", authz.ActionAdmin) {
		respondErr(c, apperr.Forbidden("only admins can send guardian reports"))
		return
	}

	var req struct {
		BatchID string `json:"batchId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "batch ID is required"})
		return
	}

	students, err := a.reports.StudentsInBatch(c.Request.Context(), req.BatchID)
	if err != nil {
		respondErr(c, err)
		return
	}

	queued := 0
	for _, st := range students {
		msg, err := queue.NewReportMessage(queue.ReportJob{StudentID: st.ID, BatchID: req.BatchID})
		if err != nil {
			log.Printf("encode report job for %s failed: %v", st.ID, err)
			continue
		}
		if err := a.queue.Publish(c.Request.Context(), msg); err != nil {
			log.Printf("queue publish for %s failed: %v", st.ID, err)
			continue
		}
		queued++
	}

	c.JSON(http.StatusAccepted, gin.H{"students": len(students), "queued": queued})
}
