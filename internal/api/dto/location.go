package dto

import "time"

type UpdateLocationRequest struct {
	CourierID string   `json:"courier_id" validate:"omitempty,max=64"`
	Lat       *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lon       *float64 `json:"lon" validate:"required,gte=-180,lte=180"`
}

type LocationFixResponse struct {
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	ReportedAt time.Time `json:"reported_at"`
}

type LocationResponse struct {
	CourierID string                `json:"courier_id"`
	Current   LocationFixResponse   `json:"current"`
	History   []LocationFixResponse `json:"history,omitempty"`
}
