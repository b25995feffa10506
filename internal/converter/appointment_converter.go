package converter

import (
	"doctor-appointment-service/internal/delivery/dto"
	"doctor-appointment-service/internal/domain/entity"
)

// AppointmentToResponse converts an Appointment entity to AppointmentResponse DTO
func AppointmentToResponse(appointment *entity.Appointment) *dto.AppointmentResponse {
	if appointment == nil {
		return nil
	}

	return &dto.AppointmentResponse{
		ID:              appointment.ID,
		PatientID:       appointment.PatientID,
		DoctorID:        appointment.DoctorID,
		SlotDate:        appointment.SlotDate,
		SlotTime:        appointment.SlotTime,
		FeeSnapshot:     appointment.FeeSnapshot,
		PatientSnapshot: appointment.PatientSnapshot,
		DoctorSnapshot:  appointment.DoctorSnapshot,
		Status:          string(appointment.Status),
		CreatedAt:       appointment.CreatedAt,
		UpdatedAt:       appointment.UpdatedAt,
	}
}

// AppointmentsToResponses converts a slice of Appointment entities to response DTOs
func AppointmentsToResponses(appointments []entity.Appointment) []dto.AppointmentResponse {
	responses := make([]dto.AppointmentResponse, len(appointments))
	for i, appointment := range appointments {
		resp := AppointmentToResponse(&appointment)
		if resp != nil {
			responses[i] = *resp
		}
	}
	return responses
}
