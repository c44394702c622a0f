package visits

import (
	"fmt"

	"github.com/kfd-o/mobile-firebase-backend/internal/model"
	"github.com/kfd-o/mobile-firebase-backend/internal/push"
)

const (
	kindVisitScheduled = "visit_scheduled"
	kindVisitApproved  = "visit_approved"
)

func visitScheduledMessage(visit model.VisitRequest, deviceHandle string) push.Message {
	return push.Message{
		Token: deviceHandle,
		Title: "New Visit Scheduled",
		Body: fmt.Sprintf("A visit has been scheduled for %s at %s. Classification: %s",
			visit.VisitDate, visit.VisitTime, visit.Classification),
		Data: map[string]string{
			"visitRequestId": visit.ID,
			"homeownerId":    visit.HomeownerID,
			"visitDate":      visit.VisitDate,
			"visitTime":      visit.VisitTime,
			"classification": visit.Classification,
		},
	}
}

func visitApprovedMessage(visit model.VisitRequest, deviceHandle string) push.Message {
	return push.Message{
		Token: deviceHandle,
		Title: "Visit Approved",
		Body:  fmt.Sprintf("Your visit request for %s at %s has been approved.", visit.VisitDate, visit.VisitTime),
		Data: map[string]string{
			"visitRequestId": visit.ID,
			"visitDate":      visit.VisitDate,
			"visitTime":      visit.VisitTime,
			"status":         string(model.StatusApproved),
		},
	}
}
