/*
Package client provides a thin Go client for the Burrow manager API.

The client is used by the burrow CLI, by workers to register and heartbeat,
and by managers joining an existing cluster. Every call is bounded by
DefaultTimeout (joins get 30s, since they wait for a Raft configuration
change).

	c, err := client.NewClient("127.0.0.1:8080")
	if err != nil {
		return err
	}
	defer c.Close()

	resp, err := c.GetDeploymentStats("elser*")
*/
package client
