package converter

import (
	"doctor-appointment-service/internal/delivery/dto"
	"doctor-appointment-service/internal/domain/entity"
)

// DoctorToResponse converts a Doctor entity to DoctorResponse DTO
func DoctorToResponse(doctor *entity.Doctor) *dto.DoctorResponse {
	if doctor == nil {
		return nil
	}

	return &dto.DoctorResponse{
		ID:         doctor.ID,
		Name:       doctor.Name,
		Speciality: doctor.Speciality,
		Degree:     doctor.Degree,
		Experience: doctor.Experience,
		About:      doctor.About,
		Fees:       doctor.Fees,
		Available:  doctor.Available,
		ImageURL:   doctor.ImageURL,
		CreatedAt:  doctor.CreatedAt,
	}
}

// DoctorsToResponses converts a slice of Doctor entities to response DTOs
func DoctorsToResponses(doctors []entity.Doctor) []dto.DoctorResponse {
	responses := make([]dto.DoctorResponse, len(doctors))
	for i, doctor := range doctors {
		resp := DoctorToResponse(&doctor)
		if resp != nil {
			responses[i] = *resp
		}
	}
	return responses
}
