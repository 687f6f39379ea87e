package xtream

import "fmt"

// Stream URL builders. Pure string templates, no network calls; the panel
// authenticates playback with the credentials embedded in the path.

// LiveStreamURL returns the HLS playlist URL for a live channel.
func (c *Client) LiveStreamURL(streamID int) string {
	return fmt.Sprintf("%s/live/%s/%s/%d.m3u8", c.baseURL, c.username, c.password, streamID)
}

// MovieStreamURL returns the transport-stream URL for a VOD item.
func (c *Client) MovieStreamURL(streamID int) string {
	return fmt.Sprintf("%s/movie/%s/%s/%d.ts", c.baseURL, c.username, c.password, streamID)
}

// SeriesStreamURL returns the transport-stream URL for an episode.
func (c *Client) SeriesStreamURL(episodeID string) string {
	return fmt.Sprintf("%s/series/%s/%s/%s.ts", c.baseURL, c.username, c.password, episodeID)
}
