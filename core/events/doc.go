// Package events defines what a voice session reports while it runs.
//
// Event kinds are grouped by namespace:
//
//   - user_input.* covers a spoken question, from the first loud frame to the
//     final transcript or the capture failure.
//   - assistant_response.* covers the completion of a turn.
//   - assistant_playback.* covers a synthesized reply being played.
//   - conversation.* covers changes to the history that are not turns.
//
// Updated events carry a snapshot that later events may replace, Final events
// carry the value that was kept.
package events
