package notification

// Type тип события, по которому создаётся уведомление.
type Type string

const (
	TypeNewApplication      Type = "NEW_APPLICATION"
	TypeApplicationAccepted Type = "APPLICATION_ACCEPTED"
	TypeApplicationRejected Type = "APPLICATION_REJECTED"

	TypeProjectHired         Type = "PROJECT_HIRED"
	TypeProjectStatusChanged Type = "PROJECT_STATUS_CHANGED"
	TypeProjectSubmitted     Type = "PROJECT_SUBMITTED_FOR_REVIEW"
	TypeProjectCompleted     Type = "PROJECT_COMPLETED"
	TypeProjectCancelled     Type = "PROJECT_CANCELLED"

	TypeServiceOrderCreated           Type = "SERVICE_ORDER_CREATED"
	TypeServiceOrderAccepted          Type = "SERVICE_ORDER_ACCEPTED"
	TypeServiceOrderStarted           Type = "SERVICE_ORDER_STARTED"
	TypeServiceOrderDelivered         Type = "SERVICE_ORDER_DELIVERED"
	TypeServiceOrderRevisionRequested Type = "SERVICE_ORDER_REVISION_REQUESTED"
	TypeServiceOrderCompleted         Type = "SERVICE_ORDER_COMPLETED"
	TypeServiceOrderCancelled         Type = "SERVICE_ORDER_CANCELLED"

	TypeEscrowFunded   Type = "ESCROW_FUNDED"
	TypeEscrowReleased Type = "ESCROW_RELEASED"
	TypeEscrowRefunded Type = "ESCROW_REFUNDED"
	TypeEscrowDisputed Type = "ESCROW_DISPUTED"
	TypePayoutFailed   Type = "PAYOUT_FAILED"
)

// Category группа уведомлений для отображения.
type Category string

const (
	CategoryApplication Category = "application"
	CategoryProject     Category = "project"
	CategoryPayment     Category = "payment"
	CategorySystem      Category = "system"
)
