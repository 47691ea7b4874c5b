package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"campusattend/internal/attendance"
	"campusattend/internal/auth"
)

func (a *api) checkIn(c *gin.Context) {
	var req struct {
		SessionID string   `json:"sessionId" binding:"required"`
		Latitude  *float64 `json:"latitude" binding:"required"`
		Longitude *float64 `json:"longitude" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session ID, latitude, and longitude are required"})
		return
	}

	res, err := a.attendance.CheckIn(c.Request.Context(), auth.CallerFrom(c), req.SessionID, *req.Latitude, *req.Longitude)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (a *api) listAttendance(c *gin.Context) {
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

	res, err := a.attendance.List(c.Request.Context(), auth.CallerFrom(c), attendance.Filter{
		SessionID: c.Query("sessionId"),
		StudentID: c.Query("studentId"),
		Status:    c.Query("status"),
		From:      from,
		To:        to,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attendance": res})
}

func (a *api) adminCreateAttendance(c *gin.Context) {
	var req struct {
		StudentID string            `json:"studentId" binding:"required"`
		SessionID string            `json:"sessionId" binding:"required"`
		Status    attendance.Status `json:"status" binding:"required"`
		Latitude  *float64          `json:"latitude"`
		Longitude *float64          `json:"longitude"`
		Date      *time.Time        `json:"attendanceDate"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := a.attendance.AdminCreate(c.Request.Context(), auth.CallerFrom(c), attendance.CreateInput{
		StudentID: req.StudentID,
		SessionID: req.SessionID,
		Status:    req.Status,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Date:      req.Date,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (a *api) getAttendance(c *gin.Context) {
	rec, err := a.attendance.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (a *api) setAttendanceStatus(c *gin.Context) {
	var req struct {
		Status         attendance.Status `json:"status" binding:"required"`
		TeacherComment *string           `json:"teacherComment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}

	rec, err := a.attendance.TeacherSetStatus(c.Request.Context(), auth.CallerFrom(c), c.Param("id"), req.Status, req.TeacherComment)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (a *api) deleteAttendance(c *gin.Context) {
	if err := a.attendance.AdminDelete(c.Request.Context(), auth.CallerFrom(c), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "attendance record deleted"})
}

func (a *api) studentHistory(c *gin.Context) {
	res, err := a.attendance.HistoryForStudent(c.Request.Context(), auth.CallerFrom(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": res})
}
