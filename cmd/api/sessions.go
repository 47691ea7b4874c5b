package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"campusattend/internal/auth"
	"campusattend/internal/session"
)

func (a *api) openSession(c *gin.Context) {
	var req struct {
		SubjectID  string     `json:"subjectId" binding:"required"`
		BatchID    string     `json:"batchId" binding:"required"`
		ProgramID  string     `json:"programId" binding:"required"`
		LocationID string     `json:"locationId" binding:"required"`
		StartTime  time.Time  `json:"startTime" binding:"required"`
		EndTime    *time.Time `json:"endTime"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := a.sessions.Open(c.Request.Context(), auth.CallerFrom(c), session.OpenInput{
		SubjectID:  req.SubjectID,
		BatchID:    req.BatchID,
		ProgramID:  req.ProgramID,
		LocationID: req.LocationID,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

func (a *api) listSessions(c *gin.Context) {
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

	res, err := a.sessions.List(c.Request.Context(), auth.CallerFrom(c), session.Filter{
		SubjectID: c.Query("subjectId"),
		TeacherID: c.Query("teacherId"),
		BatchID:   c.Query("batchId"),
		Status:    c.Query("status"),
		StartFrom: from,
		StartTo:   to,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": res})
}

func (a *api) listTeacherSessions(c *gin.Context) {
	day, err := parseTimeQuery(c, "date")
	if err != nil {
		respondErr(c, err)
		return
	}

	res, err := a.sessions.ListForTeacher(c.Request.Context(), auth.CallerFrom(c), c.Query("status"), day)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": res})
}

func (a *api) listActiveSessions(c *gin.Context) {
	res, err := a.sessions.ListActiveForStudent(c.Request.Context(), auth.CallerFrom(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": res})
}

func (a *api) getSession(c *gin.Context) {
	sess, err := a.sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (a *api) updateSession(c *gin.Context) {
	var req struct {
		SubjectID  *string         `json:"subjectId"`
		BatchID    *string         `json:"batchId"`
		ProgramID  *string         `json:"programId"`
		LocationID *string         `json:"locationId"`
		StartTime  *time.Time      `json:"startTime"`
		EndTime    *time.Time      `json:"endTime"`
		Status     *session.Status `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := a.sessions.Update(c.Request.Context(), auth.CallerFrom(c), c.Param("id"), session.UpdateInput{
		SubjectID:  req.SubjectID,
		BatchID:    req.BatchID,
		ProgramID:  req.ProgramID,
		LocationID: req.LocationID,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		Status:     req.Status,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (a *api) closeSession(c *gin.Context) {
	sess, err := a.sessions.Close(c.Request.Context(), auth.CallerFrom(c), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (a *api) deleteSession(c *gin.Context) {
	if err := a.sessions.Delete(c.Request.Context(), auth.CallerFrom(c), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "session and its attendance records deleted"})
}

func (a *api) listSessionAttendance(c *gin.Context) {
	res, err := a.attendance.ListForSession(c.Request.Context(), auth.CallerFrom(c), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attendance": res})
}

func (a *api) verifyAllPending(c *gin.Context) {
	count, err := a.attendance.VerifyAllPending(c.Request.Context(), auth.CallerFrom(c), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"verified": count})
}
