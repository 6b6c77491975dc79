package adapters

import (
	"github.com/example/roombook/internal/application"
	"github.com/example/roombook/internal/persistence"
)

func toPersistenceRoom(room application.Room) persistence.Room {
	return persistence.Room{
		ID:                 room.ID,
		Name:               room.Name,
		Description:        room.Description,
		Capacity:           room.Capacity,
		Location:           room.Location,
		Equipment:          append([]string(nil), room.Equipment...),
		Tags:               append([]string(nil), room.Tags...),
		ImageURLs:          append([]string(nil), room.ImageURLs...),
		Color:              room.Color,
		RequiresApproval:   room.RequiresApproval,
		CancellationHours:  room.CancellationHours,
		TimeSlotMinutes:    room.TimeSlotMinutes,
		MinDurationMinutes: room.MinDurationMinutes,
		MaxDurationMinutes: room.MaxDurationMinutes,
		Bookable:           room.Bookable,
		Active:             room.Active,
		CreatedAt:          room.CreatedAt,
		UpdatedAt:          room.UpdatedAt,
	}
}

func toApplicationRoom(room persistence.Room) application.Room {
	return application.Room{
		ID:                 room.ID,
		Name:               room.Name,
		Description:        room.Description,
		Capacity:           room.Capacity,
		Location:           room.Location,
		Equipment:          listOrEmpty(room.Equipment),
		Tags:               listOrEmpty(room.Tags),
		ImageURLs:          listOrEmpty(room.ImageURLs),
		Color:              room.Color,
		RequiresApproval:   room.RequiresApproval,
		CancellationHours:  room.CancellationHours,
		TimeSlotMinutes:    room.TimeSlotMinutes,
		MinDurationMinutes: room.MinDurationMinutes,
		MaxDurationMinutes: room.MaxDurationMinutes,
		Bookable:           room.Bookable,
		Active:             room.Active,
		CreatedAt:          room.CreatedAt,
		UpdatedAt:          room.UpdatedAt,
	}
}

func toPersistenceBooking(booking application.Booking) persistence.Booking {
	return persistence.Booking{
		ID:                       booking.ID,
		RoomID:                   booking.RoomID,
		UserID:                   booking.UserID,
		Title:                    booking.Title,
		Description:              booking.Description,
		StartTime:                booking.Start,
		EndTime:                  booking.End,
		AttendeeCount:            booking.AttendeeCount,
		Attendees:                append([]string(nil), booking.Attendees...),
		Status:                   string(booking.Status),
		RequiresApprovalSnapshot: booking.RequiresApprovalSnapshot,
		RejectionReason:          booking.RejectionReason,
		CancellationReason:       booking.CancellationReason,
		ApprovedBy:               booking.ApprovedBy,
		ApprovedAt:               booking.ApprovedAt,
		CancelledBy:              booking.CancelledBy,
		CancelledAt:              booking.CancelledAt,
		IsRecurring:              booking.IsRecurring,
		RecurrenceRule:           booking.RecurrenceRule,
		CreatedAt:                booking.CreatedAt,
		UpdatedAt:                booking.UpdatedAt,
	}
}

func toApplicationBooking(booking persistence.Booking) application.Booking {
	return application.Booking{
		ID:                       booking.ID,
		RoomID:                   booking.RoomID,
		UserID:                   booking.UserID,
		Title:                    booking.Title,
		Description:              booking.Description,
		Start:                    booking.StartTime,
		End:                      booking.EndTime,
		AttendeeCount:            booking.AttendeeCount,
		Attendees:                listOrEmpty(booking.Attendees),
		Status:                   application.BookingStatus(booking.Status),
		RequiresApprovalSnapshot: booking.RequiresApprovalSnapshot,
		RejectionReason:          booking.RejectionReason,
		CancellationReason:       booking.CancellationReason,
		ApprovedBy:               booking.ApprovedBy,
		ApprovedAt:               booking.ApprovedAt,
		CancelledBy:              booking.CancelledBy,
		CancelledAt:              booking.CancelledAt,
		IsRecurring:              booking.IsRecurring,
		RecurrenceRule:           booking.RecurrenceRule,
		CreatedAt:                booking.CreatedAt,
		UpdatedAt:                booking.UpdatedAt,
	}
}

func toPersistenceProfile(user application.User) persistence.Profile {
	return persistence.Profile{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		Role:        string(user.Role),
		JobTitle:    user.JobTitle,
		Phone:       user.Phone,
		Active:      user.Active,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
}

func toApplicationUser(profile persistence.Profile) application.User {
	return application.User{
		ID:          profile.ID,
		Email:       profile.Email,
		DisplayName: profile.DisplayName,
		Role:        application.Role(profile.Role),
		JobTitle:    profile.JobTitle,
		Phone:       profile.Phone,
		Active:      profile.Active,
		CreatedAt:   profile.CreatedAt,
		UpdatedAt:   profile.UpdatedAt,
	}
}

func toApplicationCredentials(identity persistence.Identity) application.Credentials {
	return application.Credentials{
		UserID:       identity.ID,
		Email:        identity.Email,
		PasswordHash: identity.PasswordHash,
		Disabled:     identity.Disabled,
		CreatedAt:    identity.CreatedAt,
	}
}

func toPersistenceRoomBlock(block application.RoomBlock) persistence.RoomBlock {
	return persistence.RoomBlock{
		ID:        block.ID,
		RoomID:    block.RoomID,
		StartTime: block.Start,
		EndTime:   block.End,
		Reason:    block.Reason,
		CreatedBy: block.CreatedBy,
		CreatedAt: block.CreatedAt,
	}
}

func toApplicationRoomBlock(block persistence.RoomBlock) application.RoomBlock {
	return application.RoomBlock{
		ID:        block.ID,
		RoomID:    block.RoomID,
		Start:     block.StartTime,
		End:       block.EndTime,
		Reason:    block.Reason,
		CreatedBy: block.CreatedBy,
		CreatedAt: block.CreatedAt,
	}
}

func toPersistenceSettings(settings application.Settings) persistence.OrgSettings {
	return persistence.OrgSettings{
		OrganizationName:         settings.OrganizationName,
		Timezone:                 settings.Timezone,
		DefaultCancellationHours: settings.DefaultCancellationHours,
		NotificationEmail:        settings.NotificationEmail,
		UpdatedAt:                settings.UpdatedAt,
	}
}

func toApplicationSettings(settings persistence.OrgSettings) application.Settings {
	return application.Settings{
		OrganizationName:         settings.OrganizationName,
		Timezone:                 settings.Timezone,
		DefaultCancellationHours: settings.DefaultCancellationHours,
		NotificationEmail:        settings.NotificationEmail,
		UpdatedAt:                settings.UpdatedAt,
	}
}

func listOrEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
