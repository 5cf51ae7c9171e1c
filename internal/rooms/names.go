package rooms

// Room identifiers are derived deterministically and are never
// user-supplied. Every component that needs a room name goes through
// these functions.

// ForOrder returns the room every observer of an order joins.
func ForOrder(orderID string) string {
	return "order_" + orderID
}

// ForUser returns a customer's personal notification room.
func ForUser(userID string) string {
	return "user_" + userID
}

// ForRestaurant returns a restaurant's notification room.
func ForRestaurant(restaurantID string) string {
	return "restaurant_" + restaurantID
}

// ForPartner returns a delivery partner's personal room.
func ForPartner(partnerID string) string {
	return "delivery_" + partnerID
}
