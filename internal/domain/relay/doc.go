/*
Package relay implements the in-process fan-out hub bridging three directions:
events produced by local request handlers, events consumed from the broker's
broadcast exchanges, and outbound delivery to live real-time subscribers.

Key properties:
  - Non-blocking publish: every subscriber owns a bounded mailbox; a slow or
    dead consumer never stalls the publisher or its siblings.
  - Drop policy: newest-dropped. When a mailbox is full the incoming frame is
    discarded for that subscriber and counted, nothing is evicted.
  - At-most-once: a subscriber that connects after publish never sees the
    frame; recoverable state is rebuilt by replaying the canvas log, not the
    relay history.
*/
package relay
