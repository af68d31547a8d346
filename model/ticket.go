package model

type TicketStatus string

const TICKET_STATUS_TODO TicketStatus = "TODO"
const TICKET_STATUS_IN_PROGRESS TicketStatus = "IN_PROGRESS"
const TICKET_STATUS_COMPLETED TicketStatus = "COMPLETED"

type TicketPriority string

const TICKET_PRIORITY_LOW TicketPriority = "low"
const TICKET_PRIORITY_MEDIUM TicketPriority = "medium"
const TICKET_PRIORITY_HIGH TicketPriority = "high"

func IsValidPriority(p TicketPriority) bool {
	switch p {
	case TICKET_PRIORITY_LOW, TICKET_PRIORITY_MEDIUM, TICKET_PRIORITY_HIGH:
		return true
	}
	return false
}

type Ticket struct {
	Id            string         `json:"id"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Status        TicketStatus   `json:"status"`
	Priority      TicketPriority `json:"priority"`
	HelpfulNotes  string         `json:"helpfulNotes"`
	RelatedSkills []string       `json:"relatedSkills"`
	AssignedTo    string         `json:"assignedTo"`
	CreatedBy     string         `json:"createdBy"`
	CreatedAt     int64          `json:"createdAt"`
}

// TicketUpdate applies only the fields that are set. A nil field
// leaves the stored value untouched.
type TicketUpdate struct {
	Status        *TicketStatus   `json:"status,omitempty"`
	Priority      *TicketPriority `json:"priority,omitempty"`
	HelpfulNotes  *string         `json:"helpfulNotes,omitempty"`
	RelatedSkills *[]string       `json:"relatedSkills,omitempty"`
	AssignedTo    *string         `json:"assignedTo,omitempty"`
}
