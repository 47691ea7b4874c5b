package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campusattend/internal/auth"
	"campusattend/internal/location"
)

func (a *api) createLocation(c *gin.Context) {
	var req struct {
		CampusName   string  `json:"campusName" binding:"required"`
		CenterLat    float64 `json:"centerLatitude"`
		CenterLon    float64 `json:"centerLongitude"`
		RadiusMeters int     `json:"radius"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	l, err := a.locations.Create(c.Request.Context(), auth.CallerFrom(c), location.CreateInput{
		CampusName:   req.CampusName,
		CenterLat:    req.CenterLat,
		CenterLon:    req.CenterLon,
		RadiusMeters: req.RadiusMeters,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, l)
}

func (a *api) listLocations(c *gin.Context) {
	res, err := a.locations.List(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"locations": res})
}

func (a *api) getLocation(c *gin.Context) {
	l, err := a.locations.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

func (a *api) updateLocation(c *gin.Context) {
	var req struct {
		CampusName   *string  `json:"campusName"`
		CenterLat    *float64 `json:"centerLatitude"`
		CenterLon    *float64 `json:"centerLongitude"`
		RadiusMeters *int     `json:"radius"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	l, err := a.locations.Update(c.Request.Context(), auth.CallerFrom(c), c.Param("id"), location.UpdateInput{
		CampusName:   req.CampusName,
		CenterLat:    req.CenterLat,
		CenterLon:    req.CenterLon,
		RadiusMeters: req.RadiusMeters,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

func (a *api) deleteLocation(c *gin.Context) {
	if err := a.locations.Delete(c.Request.Context(), auth.CallerFrom(c), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "location deleted"})
}

func (a *api) verifyLocation(c *gin.Context) {
	var req struct {
		Latitude   *float64 `json:"latitude" binding:"required"`
		Longitude  *float64 `json:"longitude" binding:"required"`
		LocationID string   `json:"locationId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "latitude and longitude are required"})
		return
	}

	res, err := a.locations.Verify(c.Request.Context(), *req.Latitude, *req.Longitude, req.LocationID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
