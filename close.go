package quadstore

// Close marks the dataset closed. Later begins fail with ErrClosed;
// transactions already running finish normally.
func (ds *Dataset) Close() error {
	if ds == nil {
		return nil
	}
	ds.coord.Close()
	ds.logger.Debug("dataset closed", "version", ds.coord.Version())
	return nil
}
