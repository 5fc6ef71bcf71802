/*
Package alert detects gaps in the dashboard metrics and notifies operators.

GapDetector queries one canary metric (reference: kafka.producer.request-rate
with the producer dimensions) over the trailing window at the configured
period. No data points means the dashboard is going blank and an alert is
published to the configured topic. A failed query is treated the same as an
empty result, so a broken backend also pages.

# Notifiers

  - SNSNotifier: Amazon SNS, topic is the topic ARN
  - NtfyNotifier: ntfy.sh or self-hosted ntfy, topic is the ntfy topic

# Deduplication

With alert.dedup_window at 0 an alert goes out on every cycle that finds a
gap. A positive window suppresses repeats: the time of the last delivered
alert is kept in the AlertStore (bbolt) so suppression survives restarts.
Failed deliveries are not recorded.
*/
package alert
