/*
 * VC5 load balancer. Copyright (C) 2021-present David Coles
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation; either version 2 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License along
 * with this program; if not, write to the Free Software Foundation, Inc.,
 * 51 Franklin Street, Fifth Floor, Boston, MA 02110-1301 USA.
 */

package bgp

// ExportAllowed implements the standard customer/peer/provider export rule
// (spec.md §4.D "update_neighbors", §4.F): a route is announced, withdrawn,
// or forwarded towards neighbor N iff it was learned from a customer, or N
// is a customer. The same predicate governs announcements, withdrawals,
// and data forwarding.
func ExportAllowed(learnedFrom, towards Relationship) bool {
	return learnedFrom == Customer || towards == Customer
}

// AllowForward applies §4.F step 4: forwarding is allowed iff the chosen
// route's next-hop relationship is customer, or the inbound relationship
// (the relationship of the neighbor that best covers the data packet's
// source) is customer. An unknown inbound relationship (no route covers
// the source) never satisfies the customer side of the OR.
func AllowForward(nextHopRelationship Relationship, inboundRelationship Relationship, inboundKnown bool) bool {
	if nextHopRelationship == Customer {
		return true
	}
	return inboundKnown && inboundRelationship == Customer
}
