// Package models defines the value types exchanged between the core packages.
//
//   - [TokenRecord] : the persisted credential pair
//   - [Track], [Album], [Artist], [Image] : catalogue values decoded straight from the remote API
//   - [Device], [DeviceType] : remote output endpoints
//   - [Playback], [PlaybackContext], [PlayRequest] : player state and transport command bodies
//   - [Playlist], [User] : library browsing
//   - [Page] : one page of a paginated list endpoint
package models
