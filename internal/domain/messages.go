package domain

// Тексты ошибок, которые видит клиент API.
const (
	MsgRecordDuplicate       = "Record already exists with this artist, album, and format combination"
	MsgRecordUpdateDuplicate = "Another record already exists with this artist, album, and format combination"
	MsgRecordNotFound        = "Record with ID %s not found"
	MsgRecordHasOrders       = "Record with ID %s is referenced by %d order(s)"

	MsgMetadataFetchFailed = "Failed to fetch track list from MusicBrainz for MBID %s"
	MsgMetadataEmpty       = "No tracks found in MusicBrainz for MBID %s"
	MsgInvalidMBID         = "Invalid MusicBrainz ID (MBID) format: %s"

	MsgInsufficientStock = "Not enough records in stock"
	MsgOrderNotFound     = "Order with ID %s not found"
	MsgOrderForbidden    = "You are not allowed to access order %s"
	MsgOwnerChange       = "Only administrators can change the order owner"
	MsgAdminOnly         = "Only administrators can modify the catalog"

	MsgInvalidQuantity   = "Quantity must be a positive integer"
	MsgEmptyPatch        = "Nothing to update"
	MsgInvalidStatus     = "Unknown order status: %s"
	MsgInvalidTransition = "Cannot change order status from %s to %s"
	MsgQuantityLocked    = "Quantity can only be changed while the order is pending"

	MsgConcurrentUpdate = "The record is being modified concurrently, please retry"
)
