/*
Package deployment assembles deployment statistics.

A request names deployments by a comma separated pattern of model ids and
wildcards. Service.GetDeploymentStats answers it in five steps:

 1. Resolve matches the pattern against a snapshot of the assignments and
    collects the nodes with a started route plus, per model, the routes
    that are not started.
 2. The dispatcher queries those nodes for live stats.
 3. MergeNodeStats groups the per-node records by model id.
 4. AddFailedRoutes reconciles the live stats with the routing table. The
    routing table wins: a node whose route is not started is reported as
    not started even if it sent live counters. Routes of nodes that sent
    nothing are added, and models without any live stats get a record
    built only from their routes.
 5. Annotate copies state and reason from a second snapshot of the
    assignments, marks assignments whose routes all failed as failed and
    attaches the allocation status of starting and started assignments.

The two snapshots are read independently; an assignment changed or deleted
between them is reported with the newer state or without annotation.

Steps 3 to 5 are pure functions over their arguments and never fail. A
pattern that matches nothing yields an empty response without querying any
node. Requests run on the management executor pool.
*/
package deployment
